// Package server exposes mock instances over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics
//	POST   /graphql/{source}/{variant}
//	GET    /graphql/{source}/{variant}
//	GET    /seeds/{source}/{variant}?groupId=
//	POST   /seeds/{source}/{variant}
//	PUT    /seeds/{source}/{variant}
//	DELETE /seeds/{source}/{variant}
//
// GraphQL requests pick their seed group from the X-Seed-Group header or
// the group query parameter. Instances are built on their first request.
package server
