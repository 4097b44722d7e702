package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "fashion-ai/internal/application"
	"fashion-ai/internal/domain/entity"
	"fashion-ai/internal/infrastructure/logging"
	"fashion-ai/internal/infrastructure/storage"
)

type fakeAPI struct {
	fileURL string
	sent    []string
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

type staticCaptioner struct{}

func (staticCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	return "a red dress", nil
}

// firstLabelClassifier уверенно выбирает первую метку каждой категории
type firstLabelClassifier struct{}

func (firstLabelClassifier) Classify(ctx context.Context, text string, labels []string) (*entity.Classification, error) {
	return &entity.Classification{Sequence: text, Scores: []entity.LabelScore{{Label: labels[0], Score: 0.9}}}, nil
}

func newTestBot(t *testing.T, maxDownload int64) (*Bot, *fakeAPI, *app.UserService, *atomic.Int32) {
	t.Helper()

	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		_, _ = w.Write([]byte("photo-bytes"))
	}))
	t.Cleanup(srv.Close)

	log := logging.Discard()
	api := &fakeAPI{fileURL: srv.URL}
	users := app.NewUserService(storage.NewMemoryUserRepository())
	predictions := app.NewPredictionService(nil, staticCaptioner{}, firstLabelClassifier{}, nil, 4, log)

	return newBot(api, users, predictions, maxDownload, log), api, users, &downloads
}

func photoMessage(size int) *tgbotapi.Message {
	return &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 7},
		Chat:  &tgbotapi.Chat{ID: 70},
		Photo: []tgbotapi.PhotoSize{{FileID: "thumb", FileSize: 10}, {FileID: "full", FileSize: size}},
	}
}

func TestBot_HandlePhoto(t *testing.T) {
	bot, api, users, downloads := newTestBot(t, 1<<20)
	ctx := context.Background()

	bot.handleMessage(ctx, photoMessage(11))

	require.Equal(t, int32(1), downloads.Load())
	require.Len(t, api.sent, 2)
	require.Equal(t, msgProcessing, api.sent[0])
	require.Contains(t, api.sent[1], "👕 a red dress")
	require.Contains(t, api.sent[1], "Тип: t-shirt")

	user, err := users.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.NotNil(t, user.LastPrediction)
	require.Equal(t, 1, user.PredictionCount)

	bot.handleMessage(ctx, &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 7},
		Chat:     &tgbotapi.Chat{ID: 70},
		Text:     "/last",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
	})
	require.Equal(t, api.sent[1], api.sent[2])
}

func TestBot_HandlePhotoTooLarge(t *testing.T) {
	bot, api, users, downloads := newTestBot(t, 100)
	ctx := context.Background()

	bot.handleMessage(ctx, photoMessage(101))

	require.Zero(t, downloads.Load())
	require.Equal(t, []string{msgTooLarge}, api.sent)

	user, err := users.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Nil(t, user.LastPrediction)
}

func TestBot_DownloadRespectsLimit(t *testing.T) {
	// заявленный размер занижен, ограничивает фактическое тело ответа
	bot, api, users, downloads := newTestBot(t, 5)
	ctx := context.Background()

	bot.handleMessage(ctx, photoMessage(3))

	require.Equal(t, int32(1), downloads.Load())
	require.Equal(t, []string{msgProcessing, msgTooLarge}, api.sent)

	user, err := users.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Nil(t, user.LastPrediction)
}

func TestFormatPrediction(t *testing.T) {
	p := &entity.Prediction{
		Caption: "a woman wearing a floral dress",
		Attributes: entity.Attributes{
			{Category: entity.CategoryType, Values: []string{"dress"}},
			{Category: entity.CategoryColor, Values: []string{"pink", "white"}, Multi: true},
			{Category: "season", Values: []string{entity.Unknown}},
		},
	}

	require.Equal(t, "👕 a woman wearing a floral dress\n\nТип: dress\nЦвет: pink, white\nseason: не определено", FormatPrediction(p))
}

func TestImageFile(t *testing.T) {
	msg := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "small", FileSize: 1}, {FileID: "large", FileSize: 42}}}
	file, ok := imageFile(msg)
	require.True(t, ok)
	require.Equal(t, telegramFile{ID: "large", Size: 42}, file)

	msg = &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/png", FileSize: 7}}
	file, ok = imageFile(msg)
	require.True(t, ok)
	require.Equal(t, telegramFile{ID: "doc", Size: 7}, file)

	msg = &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "pdf", MimeType: "application/pdf"}}
	_, ok = imageFile(msg)
	require.False(t, ok)

	_, ok = imageFile(&tgbotapi.Message{Text: "hi"})
	require.False(t, ok)
}

func TestHelpListsCommands(t *testing.T) {
	for _, cmd := range []string{"/predict", "/last", "/cancel"} {
		require.Contains(t, msgHelp, cmd)
		require.Contains(t, msgStart, cmd)
	}
}
