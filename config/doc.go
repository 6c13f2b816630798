// Package config loads the database pool configuration.
//
// A database.yaml file lists clients, each with a write pool and an
// optional read pool:
//
//	default: main
//	clients:
//	  main:
//	    write:
//	      kind: postgres
//	      url: postgres://app@db/app
//	      max: 10
//	      sticky_duration: 5
//	    read:
//	      kind: postgres
//	      client_type: read
//	      url: postgres://app@replica/app
//
// Missing fields take the values of Default. Environment variables
// prefixed with DTY_DB_ override the default client, and a .env file is
// read first when present:
//
//	DTY_DB_DEFAULT=main
//	DTY_DB_WRITE_URL=postgres://app@db/app
//	DTY_DB_READ_URL=postgres://app@replica/app
//	DTY_DB_WRITE_STICKY_DURATION=5
package config
