package entity

import "time"

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото одежды
	StateProcessing    UserState = "processing"     // Идёт распознавание
)

// User представляет пользователя бота
type User struct {
	ID              int64       // Telegram User ID
	ChatID          int64       // Telegram Chat ID
	State           UserState   // Текущее состояние пользователя
	LastPrediction  *Prediction // Последний результат распознавания
	PredictionCount int
	UpdatedAt       time.Time
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:        userID,
		ChatID:    chatID,
		State:     StateMainMenu,
		UpdatedAt: time.Now(),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
	u.UpdatedAt = time.Now()
}

// RecordPrediction запоминает результат и возвращает пользователя в главное меню
func (u *User) RecordPrediction(p *Prediction) {
	u.LastPrediction = p
	u.PredictionCount++
	u.SetState(StateMainMenu)
}
