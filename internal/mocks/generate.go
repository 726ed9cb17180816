// Package mocks provides gomock implementations of the engine's collaborator
// interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	src := mocks.NewMockSource(ctrl)
//	src.EXPECT().Fetch(gomock.Any(), "piano").Return(postings, nil)
package mocks

// Source adapters (board scrapers, mailbox).
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=source_mock.go gigscout-engine/internal/scrape/types Source

// Digest transports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=notifier_mock.go gigscout-engine/internal/notify Notifier
