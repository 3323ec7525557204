package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"betting_assistant/models"
	"betting_assistant/pkg/config"
	"betting_assistant/pkg/history"
	"betting_assistant/pkg/stats"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	MaxMessageLength = 4096 // Telegram单条消息最大长度
	maxRecentCount   = 20   // /recent 最多显示条数
)

type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	store  *history.Store
}

var GlobalTelegramClient *TelegramClient

// 获取中国时区
func getChinaLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		logrus.Warnf("无法加载中国时区，使用UTC: %v", err)
		return time.UTC
	}
	return loc
}

// 格式化创建时间为完整的年月日时间格式
func formatCreationTime(t time.Time) string {
	return t.In(getChinaLocation()).Format("2006-01-02 15:04:05")
}

// 安全发送消息，处理长消息分割
func (t *TelegramClient) sendMessageSafely(text string) error {
	if t == nil || t.bot == nil {
		return fmt.Errorf("telegram客户端未初始化")
	}

	if len(text) <= MaxMessageLength {
		return t.SendMessage(text)
	}

	parts := splitLongMessage(text, MaxMessageLength)
	for i, part := range parts {
		if i > 0 {
			time.Sleep(100 * time.Millisecond) // 避免发送过快
		}
		if err := t.SendMessage(part); err != nil {
			return fmt.Errorf("发送消息第%d部分失败: %v", i+1, err)
		}
	}
	return nil
}

// 分割长消息，优先按行切分
func splitLongMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	lines := strings.Split(text, "\n")
	currentPart := ""

	for i := range lines {
		line := lines[i]
		if len(line) > maxLen {
			if currentPart != "" {
				parts = append(parts, currentPart)
				currentPart = ""
			}
			for len(line) > maxLen {
				parts = append(parts, line[:maxLen])
				line = line[maxLen:]
			}
			currentPart = line
			continue
		}

		candidate := currentPart
		if candidate != "" {
			candidate += "\n"
		}
		candidate += line

		if len(candidate) > maxLen {
			if currentPart != "" {
				parts = append(parts, currentPart)
			}
			currentPart = line
		} else {
			currentPart = candidate
		}
	}

	if currentPart != "" {
		parts = append(parts, currentPart)
	}

	return parts
}

// InitTelegram 初始化Telegram客户端，未配置Token时跳过
func InitTelegram(store *history.Store) error {
	if config.GlobalConfig.TelegramBotToken == "" {
		logrus.Warn("未配置Telegram Bot Token，跳过Telegram初始化")
		return nil
	}
	if config.GlobalConfig.TelegramChatID == 0 {
		return fmt.Errorf("telegram chat ID未配置")
	}

	bot, err := tgbotapi.NewBotAPI(config.GlobalConfig.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("创建Telegram Bot失败: %v", err)
	}

	bot.Debug = false

	GlobalTelegramClient = &TelegramClient{
		bot:    bot,
		chatID: config.GlobalConfig.TelegramChatID,
		store:  store,
	}

	GlobalTelegramClient.setupCustomKeyboard()

	go GlobalTelegramClient.startCommandListener()

	logrus.Info("Telegram客户端初始化成功")
	return nil
}

// Stop 停止命令监听
func (t *TelegramClient) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// SendMessage 发送普通消息
func (t *TelegramClient) SendMessage(text string) error {
	if t == nil || t.bot == nil {
		return fmt.Errorf("telegram客户端未初始化")
	}

	if len(text) > MaxMessageLength {
		return t.sendMessageSafely(text)
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "Markdown"

	_, err := t.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("发送消息失败: %v", err)
	}

	return nil
}

// SendError 发送错误通知
func (t *TelegramClient) SendError(operation string, err error) error {
	return t.SendMessage(fmt.Sprintf("%s\n\n错误详情: %v", operation, err))
}

// SendServiceStatus 发送服务状态通知
func (t *TelegramClient) SendServiceStatus(status, message string) error {
	statusMap := map[string]string{
		"starting": "启动中",
		"started":  "已启动",
		"stopping": "停止中",
		"stopped":  "已停止",
		"error":    "错误",
	}

	statusText, exists := statusMap[status]
	if !exists {
		statusText = "信息"
	}

	text := fmt.Sprintf(`%s

%s

时间: %s`, statusText, message, formatCreationTime(time.Now()))

	return t.SendMessage(text)
}

// AnalysisSaved 新分析保存通知
func (t *TelegramClient) AnalysisSaved(record models.AnalysisRecord, summary stats.Summary) {
	text := "📝  新的投注分析\n\n" + formatRecord(record) + "\n\n" + formatSummary(summary)
	if err := t.SendMessage(text); err != nil {
		logrus.Warnf("发送分析通知失败: %v", err)
	}
}

// OutcomeUpdated 结果更新通知
func (t *TelegramClient) OutcomeUpdated(record models.AnalysisRecord, summary stats.Summary) {
	text := "🏁  投注结果已更新\n\n" + formatRecord(record) + "\n\n" + formatSummary(summary)
	if err := t.SendMessage(text); err != nil {
		logrus.Warnf("发送结果通知失败: %v", err)
	}
}

// startCommandListener 启动命令监听
func (t *TelegramClient) startCommandListener() {
	if t == nil || t.bot == nil {
		logrus.Error("Telegram客户端未初始化，无法启动命令监听")
		return
	}

	logrus.Info("启动Telegram命令监听...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		// 只处理指定聊天的消息
		if update.Message.Chat.ID != t.chatID {
			continue
		}
		if update.Message.IsCommand() {
			t.handleCommand(update.Message)
		}
	}
}

// handleCommand 处理命令
func (t *TelegramClient) handleCommand(message *tgbotapi.Message) {
	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	user := ""
	if message.From != nil {
		user = message.From.UserName
	}
	logrus.WithFields(logrus.Fields{
		"command": command,
		"args":    args,
		"user":    user,
	}).Info("收到Telegram命令")

	reply := t.commandReply(command, args)
	if err := t.SendMessage(reply); err != nil {
		logrus.Errorf("回复Telegram命令失败: %v", err)
	}
}

// commandReply 生成命令的回复文本
func (t *TelegramClient) commandReply(command string, args []string) string {
	switch command {
	case "start", "help":
		return helpText
	case "stats":
		return formatSummary(stats.Summarize(t.loadHistory()))
	case "recent":
		n := stats.DefaultRecentLimit
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
				n = v
			}
		}
		if n > maxRecentCount {
			n = maxRecentCount
		}
		return formatRecords("最近的分析", stats.Recent(t.loadHistory(), n))
	case "pending":
		pending := stats.FilterByOutcome(t.loadHistory(), string(models.OutcomePending))
		return formatRecords("待定的分析", stats.SortByDateDescending(pending))
	default:
		return fmt.Sprintf("未知命令: /%s\n\n发送 /start 查看可用命令", command)
	}
}

func (t *TelegramClient) loadHistory() []models.AnalysisRecord {
	if t.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return t.store.Load(ctx)
}

const helpText = `投注分析助手机器人

查询命令:
• /stats - 查看胜率和平均回报
• /recent [n] - 最近n条分析 (默认4条)
• /pending - 尚未结算的分析

新分析保存和结果更新时会自动推送通知。`

// formatSummary 统计汇总文本
func formatSummary(summary stats.Summary) string {
	items := stats.Dashboard(summary)
	var b strings.Builder
	b.WriteString("📊  统计汇总\n")
	for i := range items {
		fmt.Fprintf(&b, "• %s: %s\n", items[i].Name, items[i].Stat)
	}
	fmt.Fprintf(&b, "• 胜/负/走水: %d/%d/%d", summary.Wins, summary.Losses, summary.Pushes)
	return b.String()
}

// formatRecord 单条分析文本
func formatRecord(record models.AnalysisRecord) string {
	teams := record.Event.Teams
	if teams == "" {
		teams = "-"
	}
	lines := []string{
		fmt.Sprintf("%s  %s", getOutcomeText(record.Outcome), teams),
		fmt.Sprintf("日期: %s", record.Date),
	}
	if record.Event.League != "" {
		lines = append(lines, fmt.Sprintf("联赛: %s", record.Event.League))
	}
	if record.Recommendation != "" {
		lines = append(lines, fmt.Sprintf("推荐: %s", record.Recommendation))
	}
	lines = append(lines, fmt.Sprintf("置信度: %.0f%%", float64(record.Confidence)*100))
	if record.ROI != "" {
		lines = append(lines, fmt.Sprintf("回报: %s", record.ROI))
	}
	lines = append(lines, fmt.Sprintf("ID: `%s`", record.ID))
	return strings.Join(lines, "\n")
}

// formatRecords 多条分析文本
func formatRecords(title string, records []models.AnalysisRecord) string {
	if len(records) == 0 {
		return title + "\n\n暂无记录"
	}
	parts := make([]string, 0, len(records)+1)
	parts = append(parts, fmt.Sprintf("%s (%d)", title, len(records)))
	for i := range records {
		parts = append(parts, formatRecord(records[i]))
	}
	return strings.Join(parts, "\n\n")
}

// getOutcomeText 结算状态的描述
func getOutcomeText(outcome models.Outcome) string {
	switch outcome {
	case models.OutcomeWin:
		return "✅  赢"
	case models.OutcomeLoss:
		return "❌  输"
	case models.OutcomePush:
		return "↩️  走水"
	case models.OutcomePending:
		return "⏳  待定"
	default:
		return "❓  " + string(outcome)
	}
}

// setupCustomKeyboard 设置常用命令键盘
func (t *TelegramClient) setupCustomKeyboard() {
	if t == nil || t.bot == nil {
		return
	}

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/stats"),
			tgbotapi.NewKeyboardButton("/recent"),
			tgbotapi.NewKeyboardButton("/pending"),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = false
	keyboard.InputFieldPlaceholder = "输入命令..."

	msg := tgbotapi.NewMessage(t.chatID, "投注分析助手已就绪")
	msg.ReplyMarkup = keyboard

	if _, err := t.bot.Send(msg); err != nil {
		logrus.Errorf("设置自定义键盘失败: %v", err)
	} else {
		logrus.Info("自定义键盘设置成功")
	}
}
