// Package dom defines the narrow contract between the interaction core and a
// remote document: the page, its frame tree, the open shadow roots inside each
// frame, and element handles that are only meaningful relative to the frame
// that produced them.
//
// Handles are never cached across operations. The host page may navigate or
// re-render at any time, so every locate or interact call re-resolves from
// Page.MainFrame.
package dom
