// Package recordset holds the tabular inputs of a matching run. A Set keeps
// records in load order with a stable ordinal index per run, maps logical
// field names onto the values read from the source columns, and normalizes
// blocking keys so both blocking backends compare identical key material.
package recordset
