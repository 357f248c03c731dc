// Package fs abstracts the few file operations the result log performs so
// tests can inject I/O failures.
//
// Production code uses [Default], which is [LocalFS]. Tests wrap it in a
// [FaultyFS] and register a [Fault] per file name pattern:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("results.csv", fs.Fault{FailAfterBytes: 0})
//
// Operations take no context. Local file calls are not interruptible and
// remote storage goes through the blobstore package instead.
package fs
