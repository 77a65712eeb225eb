package domain

// Package domain contains the core concepts shared by the label pipeline:
// serial records, size classes and the error taxonomy.
// Keep this package free of transport (HTTP) and infrastructure (Redis/Postgres) concerns.
