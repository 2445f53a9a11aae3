// Package keywatch reloads a searcher keypair when its file is rotated on disk.
package keywatch
