// Package http provides optional net/http adapters for inline editing.
//
// Public reads mount under /api and only ever expose published content:
//   - Elements: GET /elements/{page}/{element}?locale=ar
//   - Collections: GET /collections/{page}/{section}
//
// Editing routes mount under /admin/api and are permission checked per page:
//   - Elements: GET /elements/{page}, GET|PUT /elements/{page}/{element},
//     POST /elements/{page}/{element}/publish
//   - Collections: GET|PUT /collections/{page}/{section}
//   - Rich text: POST /preview
//
// Host applications can register handlers on their own mux/router as needed.
package http
