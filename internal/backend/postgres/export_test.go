package postgres

// UpdateStatement exposes updateStatement to the external test package.
var UpdateStatement = updateStatement
