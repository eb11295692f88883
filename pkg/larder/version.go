package larder

// Version is the larder release version, stamped here and reported by
// the CLI.
const Version = "0.1.0"
