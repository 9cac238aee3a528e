// Package packager builds an Arduino IDE library archive from a flat source folder.
//
// A run scans the source folder, stages the library tree in a temporary
// directory (<lib>/src and <lib>/examples/<example>), copies optional
// metadata into the library root and zips the tree as <lib>Lib.zip. The
// staging directory is always removed, whichever step fails.
package packager
