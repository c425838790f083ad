// Package ddbhttp serves one single table over a small JSON HTTP API, so a
// long-lived emulated table can be inspected and modified with curl.
//
// Routes:
//
//	GET  /api/table              describe the table
//	POST /api/table              create the table
//	DELETE /api/table            delete (clear) the table
//	GET  /api/items?index=&limit= scan
//	PUT  /api/items              put one item, body is a JSON object
//	GET  /api/items/{pk}/{sk}    get one item
//	POST /api/query              query, body {"index", "pk", "skPrefix"}
//	POST /api/transact           transactional write, body {"items": [...]}
//
// Item values are plain JSON. Strings become S attributes, numbers N,
// booleans BOOL, arrays L and objects M.
package ddbhttp
