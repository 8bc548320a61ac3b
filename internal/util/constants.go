package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeCSV = "text/csv"
)

// 学生端接口的固定文案
const (
	MsgSubmitted        = "Submitted!"
	MsgAlreadySubmitted = "Already submitted!"
)
