package config

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
	BackendKV       = "kv"
	BackendFile     = "file"
	BackendS3       = "s3"
)

const (
	CompressionZstd = "zstd"
	CompressionGzip = "gzip"
	CompressionNone = "none"
)
