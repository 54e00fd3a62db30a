package scanner

// platformPathLimit is the path-length ceiling applied during a scan.
// Windows' legacy MAX_PATH is the binding constraint across platforms;
// Unix filesystems tolerate far longer paths in practice.
const platformPathLimit = 260
