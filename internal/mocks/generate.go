package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/team --output domain/team --outpkg teammock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Notifier --dir ../usecase --output usecase --outpkg usecasemock --filename notifier_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name FeedFetcher --dir ../usecase --output usecase --outpkg usecasemock --filename feed_fetcher_mock.go
