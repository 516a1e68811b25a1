// Package theme defines the light/dark display modes and resolves typed,
// immutable style bundles for each mode.
//
// Integration example:
//
//	v := theme.Normalize(raw)
//	bundle := theme.Resolve(v, os.Getenv("TERM"))
//	styles := bundle.Styles(renderer)
//	header := styles.Header.Render("folio")
package theme
