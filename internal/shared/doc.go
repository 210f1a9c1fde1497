// Package shared holds cross-cutting helpers that belong to no single
// pipeline stage. Today it carries only the testutil subpackage with the
// log-capture helpers the package tests share.
package shared
