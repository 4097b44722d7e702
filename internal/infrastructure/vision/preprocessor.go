package vision

import (
	"fmt"
	"math"

	"fashion-ai/internal/domain/entity"
	"fashion-ai/internal/domain/port"
)

const jpegQuality = 90

// Preprocessor нормализует загруженные изображения перед отправкой в модель.
// Реализация Prepare зависит от тега сборки: по умолчанию чистый Go (imaging),
// с тегом gocv используется OpenCV.
type Preprocessor struct {
	MaxSide int // длинная сторона уменьшается до этого значения
	MinSide int // изображения меньше отклоняются
}

// NewPreprocessor создаёт препроцессор с ограничениями размеров.
func NewPreprocessor(maxSide, minSide int) *Preprocessor {
	if maxSide <= 0 {
		maxSide = 1024
	}
	if minSide <= 0 {
		minSide = 1
	}
	return &Preprocessor{MaxSide: maxSide, MinSide: minSide}
}

func (p *Preprocessor) checkSize(width, height int) error {
	if width < p.MinSide || height < p.MinSide {
		return fmt.Errorf("%w: image is too small (%dx%d)", entity.ErrInvalidImage, width, height)
	}
	return nil
}

// fitSize возвращает размер, вписанный в MaxSide с сохранением пропорций
func (p *Preprocessor) fitSize(width, height int) (int, int) {
	if width <= p.MaxSide && height <= p.MaxSide {
		return width, height
	}
	scale := float64(p.MaxSide) / float64(max(width, height))
	return max(int(math.Round(float64(width)*scale)), 1), max(int(math.Round(float64(height)*scale)), 1)
}

// Проверка реализации интерфейса
var _ port.ImagePreprocessor = (*Preprocessor)(nil)
