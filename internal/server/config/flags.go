package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/memorial/internal/flagx"
)

// parseFlags overlays the short flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-l string   log level
//	-s string   JWT HMAC secret key
//	-n int      max photos per submission
//	-m int      max file size, bytes
//	-v bool     accept video files
//	-b string   S3 bucket
//	-e string   S3 base endpoint
//	-u string   public base URL for stored objects
//
// Other flags in args are ignored.
func parseFlags(c *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-l", "-s", "-n", "-m", "-v", "-b", "-e", "-u"})

	fs := flag.NewFlagSet("memorial", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.HTTPAddr, "a", c.HTTPAddr, "address and port to run server")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")
	fs.StringVar(&c.SecretKey, "s", c.SecretKey, "secret key")
	fs.IntVar(&c.MaxPhotos, "n", c.MaxPhotos, "max photos per submission")
	fs.Int64Var(&c.MaxFileBytes, "m", c.MaxFileBytes, "max file size in bytes")
	fs.BoolVar(&c.AllowVideo, "v", c.AllowVideo, "accept video files")
	fs.StringVar(&c.S3Bucket, "b", c.S3Bucket, "S3 bucket")
	fs.StringVar(&c.S3BaseEndpoint, "e", c.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&c.S3PublicBaseURL, "u", c.S3PublicBaseURL, "public base URL of stored objects")

	return fs.Parse(args)
}
