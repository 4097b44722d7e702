package container

import (
	"github.com/sirupsen/logrus"

	app "fashion-ai/internal/application"
	"fashion-ai/internal/domain/entity"
	"fashion-ai/internal/domain/port"
)

type Container struct {
	UserService       *app.UserService
	PredictionService *app.PredictionService
}

// Backends модели и хранилища, из которых собираются сервисы
type Backends struct {
	Users        port.UserRepository
	Preprocessor port.ImagePreprocessor
	Captioner    port.Captioner
	Classifier   port.ZeroShotClassifier
}

func New(b Backends, taxonomy *entity.Taxonomy, concurrency int, logger logrus.FieldLogger) *Container {
	userService := app.NewUserService(b.Users)
	predictionService := app.NewPredictionService(
		b.Preprocessor,
		b.Captioner,
		b.Classifier,
		taxonomy,
		concurrency,
		logger.WithField("component", "prediction"),
	)

	return &Container{
		UserService:       userService,
		PredictionService: predictionService,
	}
}
