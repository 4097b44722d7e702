package entity

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
)

// Unknown подставляется, когда ни одна метка не прошла порог
const Unknown = "unknown"

// SelectionRule правило отбора меток внутри категории
type SelectionRule struct {
	TopK      int     `json:"top_k" yaml:"top_k"`         // сколько лучших меток рассматривать
	Threshold float64 `json:"threshold" yaml:"threshold"` // метка принимается при score строго больше порога
	Multi     bool    `json:"multi" yaml:"multi"`         // список меток вместо одной
}

// LabelScore оценка одной метки классификатором
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classification ответ zero-shot классификатора, метки по убыванию оценки
type Classification struct {
	Sequence string       `json:"sequence"`
	Scores   []LabelScore `json:"scores"`
}

// Sorted возвращает оценки по убыванию, равные оценки сохраняют исходный порядок
func (c *Classification) Sorted() []LabelScore {
	scores := slices.Clone(c.Scores)
	slices.SortStableFunc(scores, func(a, b LabelScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scores
}

// Select применяет правило к результату классификации
func (r SelectionRule) Select(category string, c *Classification) AttributeValue {
	k := r.TopK
	if k < 1 {
		k = 1
	}

	var scores []LabelScore
	if c != nil {
		scores = c.Sorted()
	}
	if len(scores) > k {
		scores = scores[:k]
	}

	selected := make([]string, 0, len(scores))
	for _, s := range scores {
		if s.Score > r.Threshold {
			selected = append(selected, s.Label)
		}
	}

	if !r.Multi && len(selected) > 1 {
		selected = selected[:1]
	}
	if len(selected) == 0 {
		selected = []string{Unknown}
	}

	return AttributeValue{Category: category, Values: selected, Multi: r.Multi}
}

// AttributeValue значение одной категории
type AttributeValue struct {
	Category string
	Values   []string
	Multi    bool
}

// String возвращает единственное значение или первое из списка
func (v AttributeValue) String() string {
	if len(v.Values) == 0 {
		return Unknown
	}
	return v.Values[0]
}

// IsUnknown сообщает, что ни одна метка не прошла порог
func (v AttributeValue) IsUnknown() bool {
	return len(v.Values) == 0 || (len(v.Values) == 1 && v.Values[0] == Unknown)
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.Multi {
		values := v.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(v.String())
}

// Attributes значения категорий в порядке таксономии
type Attributes []AttributeValue

// Get возвращает значение категории по имени
func (a Attributes) Get(category string) (AttributeValue, bool) {
	for _, v := range a {
		if v.Category == category {
			return v, true
		}
	}
	return AttributeValue{}, false
}

// MarshalJSON пишет объект, ключи идут в порядке таксономии
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Category)
		if err != nil {
			return nil, err
		}
		value, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Prediction итог обработки изображения
type Prediction struct {
	Caption    string     `json:"caption"`
	Attributes Attributes `json:"attributes"`
}

// PreparedImage изображение после нормализации, готовое для модели
type PreparedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}
