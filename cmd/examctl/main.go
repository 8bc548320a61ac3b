// examctl 后台命令行工具：导入试卷、查看成绩、录入分数
//
// 用法:
//
//	go run ./cmd/examctl import -f exam.yaml
//	go run ./cmd/examctl exams
//	go run ./cmd/examctl results <examId>
//	go run ./cmd/examctl submission <submissionId>
//	go run ./cmd/examctl grade <submissionId> --mark 12=4.5 --mark 13=3
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}
