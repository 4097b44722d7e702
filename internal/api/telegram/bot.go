package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	app "fashion-ai/internal/application"
	"fashion-ai/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я распознаю одежду на фотографиях.

📸 Отправьте мне фото вещи, и я опишу её: тип, цвет, материал, узор, стиль, посадку и детали.

📋 Команды:
/predict — распознать вещь
/last — повторить последний результат
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото одежды (можно файлом)
2️⃣ Бот составит описание изображения
3️⃣ Вы получите описание и атрибуты вещи

💡 Рекомендации:
• Одна вещь в кадре
• Хорошее освещение
• Однотонный фон

📋 Команды:
/predict — распознать вещь
/last — повторить последний результат
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото вещи для распознавания."
	msgCancelled       = "❌ Операция отменена. Отправьте /predict для нового распознавания."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото вещи."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgNoLast          = "🤷 Пока нет результатов. Отправьте фото вещи."
	msgInvalidImage    = "⚠️ Не удалось прочитать изображение. Попробуйте другое фото."
	msgTooLarge        = "⚠️ Файл слишком большой. Отправьте фото поменьше."
	msgUnknownValue    = "не определено"
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте позже."
)

// Подписи категорий в ответе бота
var categoryTitles = map[string]string{
	entity.CategoryType:           "Тип",
	entity.CategoryColor:          "Цвет",
	entity.CategoryMaterial:       "Материал",
	entity.CategoryPattern:        "Узор",
	entity.CategoryStyle:          "Стиль",
	entity.CategoryFit:            "Посадка",
	entity.CategoryFeatures:       "Детали",
	entity.CategoryTargetAudience: "Для кого",
}

var errFileTooLarge = errors.New("file exceeds download limit")

// botAPI методы Telegram API, которыми пользуется бот
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api         botAPI
	users       *app.UserService
	predictions *app.PredictionService
	http        *resty.Client
	maxDownload int64
	logger      logrus.FieldLogger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, predictions *app.PredictionService, maxDownload int64, logger logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot := newBot(api, users, predictions, maxDownload, logger)
	bot.logger.Infof("Authorized on account %s", api.Self.UserName)

	return bot, nil
}

func newBot(api botAPI, users *app.UserService, predictions *app.PredictionService, maxDownload int64, logger logrus.FieldLogger) *Bot {
	return &Bot{
		api:         api,
		users:       users,
		predictions: predictions,
		http:        resty.New().SetTimeout(60 * time.Second),
		maxDownload: maxDownload,
		logger:      logger.WithField("component", "telegram"),
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.WithError(err).Error("get user")
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if file, ok := imageFile(msg); ok {
		b.handlePhoto(ctx, msg, user, file)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "predict", "check":
		b.users.BeginPrediction(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "last":
		if user.LastPrediction == nil {
			b.sendMessage(msg.Chat.ID, msgNoLast)
			return
		}
		b.sendMessage(msg.Chat.ID, FormatPrediction(user.LastPrediction))

	case "cancel":
		b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto скачивает фото и запускает распознавание
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, file telegramFile) {
	logger := b.logger.WithFields(logrus.Fields{"user_id": user.ID, "chat_id": user.ChatID})

	// Размер известен заранее, большие файлы даже не скачиваем
	if int64(file.Size) > b.maxDownload {
		logger.WithField("bytes", file.Size).Warn("photo exceeds download limit")
		b.sendMessage(msg.Chat.ID, msgTooLarge)
		return
	}

	b.users.StartProcessing(ctx, user.ID, user.ChatID)
	b.sendMessage(msg.Chat.ID, msgProcessing)

	imageData, err := b.downloadFile(ctx, file.ID)
	if err != nil {
		logger.WithError(err).Error("download photo")
		if errors.Is(err, errFileTooLarge) {
			b.sendMessage(msg.Chat.ID, msgTooLarge)
		} else {
			b.sendMessage(msg.Chat.ID, msgProcessingError)
		}
		b.users.FinishPrediction(ctx, user.ID, user.ChatID, nil)
		return
	}
	logger.WithField("bytes", len(imageData)).Info("received image")

	prediction, err := b.predictions.Predict(ctx, imageData)
	if err != nil {
		logger.WithError(err).Error("predict")
		if errors.Is(err, entity.ErrInvalidImage) || errors.Is(err, entity.ErrEmptyImage) {
			b.sendMessage(msg.Chat.ID, msgInvalidImage)
		} else {
			b.sendMessage(msg.Chat.ID, msgProcessingError)
		}
		b.users.FinishPrediction(ctx, user.ID, user.ChatID, nil)
		return
	}

	b.users.FinishPrediction(ctx, user.ID, user.ChatID, prediction)
	b.sendMessage(msg.Chat.ID, FormatPrediction(prediction))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	resp, err := b.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, b.maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if int64(len(data)) > b.maxDownload {
		return nil, fmt.Errorf("download file: %w", errFileTooLarge)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Error("send message")
	}
}

// telegramFile файл из сообщения и его заявленный размер
type telegramFile struct {
	ID   string
	Size int
}

// imageFile возвращает фото максимального размера или документ-картинку
func imageFile(msg *tgbotapi.Message) (telegramFile, bool) {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		return telegramFile{ID: photo.FileID, Size: photo.FileSize}, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return telegramFile{ID: msg.Document.FileID, Size: msg.Document.FileSize}, true
	}
	return telegramFile{}, false
}

// FormatPrediction собирает текст ответа: описание и по строке на категорию
func FormatPrediction(p *entity.Prediction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👕 %s\n", p.Caption)
	for _, attr := range p.Attributes {
		title, ok := categoryTitles[attr.Category]
		if !ok {
			title = attr.Category
		}
		value := msgUnknownValue
		if !attr.IsUnknown() {
			value = strings.Join(attr.Values, ", ")
		}
		fmt.Fprintf(&sb, "\n%s: %s", title, value)
	}
	return sb.String()
}
