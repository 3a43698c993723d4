// Package formula describes a package the installer can fetch: where the Java
// archive lives, which digest it must have and which runtime it needs.
//
// A PackageSpec is a plain value. It is loaded once from a YAML formula file
// (or the embedded git-credential-manager formula) and passed by value, so no
// caller can change the formula another caller sees.
package formula
