package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Mehr Guard API
// @version 0.1
// @description Offline phishing-URL risk engine: explainable verdicts with no network lookups.
// @contact.name Mehr Guard Maintainers
// @contact.url https://github.com/mehrguard/mehrguard
// @BasePath /
