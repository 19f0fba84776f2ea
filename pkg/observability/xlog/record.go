package xlog

import (
	"strings"
	"time"
)

// TimeLayout 行格式的时间戳布局（毫秒，逗号分隔）
const TimeLayout = "2006-01-02 15:04:05,000"

// Record 一条日志记录，创建后不再修改
type Record struct {
	Time    time.Time
	Level   Level
	Message string
}

// NewRecord 以当前时间创建记录
func NewRecord(level Level, msg string) Record {
	return Record{Time: time.Now(), Level: level, Message: msg}
}

// lineEscaper 保证一条记录只占一行
var lineEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`)

// AppendRecord 把记录格式化为 "<时间戳> - <级别> - <消息>\n" 追加到 dst
func AppendRecord(dst []byte, r Record) []byte {
	dst = r.Time.AppendFormat(dst, TimeLayout)
	dst = append(dst, " - "...)
	dst = append(dst, r.Level.String()...)
	dst = append(dst, " - "...)
	if strings.ContainsAny(r.Message, "\r\n") {
		dst = append(dst, lineEscaper.Replace(r.Message)...)
	} else {
		dst = append(dst, r.Message...)
	}
	return append(dst, '\n')
}

// FormatRecord 返回记录的行格式
func FormatRecord(r Record) []byte {
	return AppendRecord(make([]byte, 0, len(TimeLayout)+len(r.Message)+16), r)
}
