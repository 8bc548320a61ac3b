package main

import (
	"encoding/json"
	"errors"
	"exam_portal_backend/internal/app"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/database"
	"exam_portal_backend/pkg/logger"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type cliOptions struct {
	configDir string
	migrate   bool
	verbose   bool

	services *app.Services
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "examctl",
		Short:         "Exam Portal 后台命令行工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config", app.ConfigDir, "配置文件目录")
	root.PersistentFlags().BoolVar(&opts.migrate, "migrate", false, "执行数据库迁移")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出服务日志")

	root.AddCommand(
		newImportCmd(opts),
		newExamsCmd(opts),
		newResultsCmd(opts),
		newSubmissionCmd(opts),
		newGradeCmd(opts),
		newUserCmd(opts),
	)
	return root
}

func (o *cliOptions) init() error {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}
	cfg.ForceMigrate = o.migrate

	if o.verbose {
		cfg.Log.File = ""
		logger.InitLogger(cfg)
	}
	util.RegisterValidators()

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	// 命令行不经过缓存，删除/导入后由服务端 TTL 自然过期
	a, err := app.New(cfg, db, nil)
	if err != nil {
		return err
	}
	o.services = a.Services
	return nil
}

// examFile 试卷导入文件格式
type examFile struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Questions   []struct {
		Text     string      `yaml:"text"`
		Type     string      `yaml:"type"`
		MaxMarks int         `yaml:"max_marks"`
		Options  interface{} `yaml:"options"`
	} `yaml:"questions"`
}

func decodeExamFile(r io.Reader) (service.CreateExamReq, error) {
	var f examFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return service.CreateExamReq{}, fmt.Errorf("解析试卷文件失败: %w", err)
	}

	req := service.CreateExamReq{
		Title:       f.Title,
		Description: f.Description,
		Questions:   make([]service.CreateQuestionReq, 0, len(f.Questions)),
	}
	for i, q := range f.Questions {
		qt := strings.ToUpper(strings.TrimSpace(q.Type))
		if qt == "" {
			qt = "TEXT"
		}
		item := service.CreateQuestionReq{
			Text:         q.Text,
			QuestionType: qt,
			MaxMarks:     q.MaxMarks,
		}
		if q.Options != nil {
			raw, err := json.Marshal(q.Options)
			if err != nil {
				return service.CreateExamReq{}, fmt.Errorf("第 %d 题 options 无法转换为 JSON: %w", i+1, err)
			}
			item.Options = raw
		}
		req.Questions = append(req.Questions, item)
	}
	return req, nil
}

func newImportCmd(opts *cliOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "从 YAML 文件导入试卷",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			req, err := decodeExamFile(f)
			if err != nil {
				return err
			}
			exam, err := opts.services.Exam.CreateExam(cmd.Context(), req)
			if err != nil {
				return err
			}
			color.Green("已创建考试 %s（%d 道题）", exam.ID, len(exam.Questions))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "试卷 YAML 文件")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newExamsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exams",
		Short: "列出全部考试",
		RunE: func(cmd *cobra.Command, args []string) error {
			exams, err := opts.services.Exam.ListExams(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Questions", "Total Marks", "Submissions", "Created"})
			for _, e := range exams {
				table.Append([]string{
					e.ID,
					e.Title,
					strconv.Itoa(e.QuestionCount),
					strconv.Itoa(e.TotalMarks),
					strconv.Itoa(e.SubmissionCount),
					e.CreatedAt.Format(util.TimeFormat),
				})
			}
			table.Render()
			return nil
		},
	}
}

func newResultsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "results <examId>",
		Short: "查看考试的提交与成绩",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subs, err := opts.services.Exam.ListSubmissions(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Submission", "Reg Number", "Name", "Score", "Status"})
			graded := 0
			for _, s := range subs {
				status := color.YellowString("pending")
				if s.IsGraded {
					status = color.GreenString("graded")
					graded++
				}
				table.Append([]string{
					strconv.FormatUint(uint64(s.ID), 10),
					s.RegNumber,
					s.StudentName,
					strconv.FormatFloat(s.Score, 'f', 2, 64),
					status,
				})
			}
			table.Render()
			color.Cyan("%d / %d 已评分", graded, len(subs))
			return nil
		},
	}
}

func newSubmissionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submission <submissionId>",
		Short: "查看提交的答案（阅卷视图）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := util.ParseID(args[0])
			if !ok {
				return fmt.Errorf("无效的提交ID %q", args[0])
			}
			view, err := opts.services.Grading.GetSubmissionForGrading(cmd.Context(), id)
			if err != nil {
				return err
			}

			color.Cyan("%s | %s (%s) | 总分 %.2f / %d", view.ExamTitle, view.StudentName, view.RegNumber, view.Score, view.MaxScore)
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Answer", "Question", "Type", "Answer Text", "Marks", "Max"})
			table.SetAutoWrapText(true)
			for _, a := range view.Answers {
				marks := "-"
				if a.MarkedAt != nil {
					marks = strconv.FormatFloat(a.MarksObtained, 'f', 2, 64)
				}
				table.Append([]string{
					strconv.FormatUint(uint64(a.ID), 10),
					a.QuestionText,
					a.QuestionType,
					a.StudentAnswer,
					marks,
					strconv.Itoa(a.MaxMarks),
				})
			}
			table.Render()
			return nil
		},
	}
}

// parseMarks 解析 --mark answerId=marks
func parseMarks(values []string) (map[uint]decimal.Decimal, error) {
	marks := make(map[uint]decimal.Decimal, len(values))
	for _, v := range values {
		key, value, found := strings.Cut(v, "=")
		if !found {
			return nil, fmt.Errorf("无效的分数 %q，格式应为 answerId=marks", v)
		}
		id, ok := util.ParseID(strings.TrimSpace(key))
		if !ok {
			return nil, fmt.Errorf("无效的答案ID %q", key)
		}
		m, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("无效的分数 %q: %w", value, err)
		}
		marks[id] = m
	}
	return marks, nil
}

func newGradeCmd(opts *cliOptions) *cobra.Command {
	var markArgs []string
	cmd := &cobra.Command{
		Use:   "grade <submissionId>",
		Short: "录入答案分数并重新计算总分",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := util.ParseID(args[0])
			if !ok {
				return fmt.Errorf("无效的提交ID %q", args[0])
			}
			marks, err := parseMarks(markArgs)
			if err != nil {
				return err
			}

			result, err := opts.services.Grading.Grade(cmd.Context(), id, marks)
			if err != nil {
				return err
			}

			if result.IsGraded {
				color.Green("提交 %d 已评分，总分 %.2f", result.SubmissionID, result.Score)
			} else {
				color.Yellow("提交 %d 已保存 %d/%d 道答案，当前总分 %.2f，尚未完成评分",
					result.SubmissionID, result.Marked, result.Total, result.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&markArgs, "mark", "m", nil, "answerId=marks，可重复")
	_ = cmd.MarkFlagRequired("mark")
	return cmd
}

func newUserCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "后台账号管理",
	}
	cmd.AddCommand(newUserAddCmd(opts))
	return cmd
}

const minPasswordLen = 8

func newUserAddCmd(opts *cliOptions) *cobra.Command {
	var name, email, password, role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "创建阅卷人或管理员账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < minPasswordLen {
				return fmt.Errorf("密码至少 %d 位", minPasswordLen)
			}
			user, err := opts.services.Auth.CreateUser(cmd.Context(), name, email, password, model.UserRole(strings.ToLower(role)))
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("邮箱 %s 已存在", email)
			}
			if err != nil {
				return err
			}
			color.Green("已创建%s账号 %s (ID %d)", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "显示名称")
	cmd.Flags().StringVar(&email, "email", "", "登录邮箱")
	cmd.Flags().StringVar(&password, "password", "", "登录密码")
	cmd.Flags().StringVar(&role, "role", string(model.Grader), "角色: grader 或 admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
