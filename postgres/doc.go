// Package postgres provides a PostgreSQL persontric.Adapter on top of pgxpool.
//
// The schema lives in the embedded migrations directory and is applied with
// RunMigrations. Sessions reference persons by id without a foreign key, so a person
// can be removed while sessions still point at it; the engine purges those on the next
// validation.
package postgres
