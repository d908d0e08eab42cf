// Package markdown seeds content elements from Markdown files with front
// matter. Files live under <locale>/<page>/<element>.md; the body becomes the
// element content for that locale and the front matter carries the element
// type, status and metadata.
package markdown
