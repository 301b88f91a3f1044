// Package middleware provides gin middlewares shared by the EvoRAG HTTP API.
//
// Recommended order:
//
//	r.Use(middleware.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.CORS())
package middleware
