// Package api provides the HTTP API server for marquee recommendations.
package api

import "github.com/papercomputeco/marquee/api/recommend"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Recommender serves recommend and stats requests. When nil the
	// server still answers health checks and returns 503 elsewhere.
	Recommender recommend.Recommender
}
