package translation

import "context"

// Segment is one text of a batch together with the identifier of the
// paragraph it came from
type Segment struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchTranslator translates a batch of segments. Results carry the
// identifiers of the segments they translate.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, segments []Segment) ([]Segment, error)
}

// Batch returns t as a BatchTranslator. Backends without native batch
// support are called once per segment, in order.
func Batch(t Translator) BatchTranslator {
	if bt, ok := t.(BatchTranslator); ok {
		return bt
	}
	return perSegment{t}
}

type perSegment struct {
	t Translator
}

func (p perSegment) TranslateBatch(ctx context.Context, segments []Segment) ([]Segment, error) {
	return translateEach(ctx, p.t, segments)
}

func translateEach(ctx context.Context, t Translator, segments []Segment) ([]Segment, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		text, err := t.Translate(ctx, s.Text)
		if err != nil {
			return nil, err
		}
		out = append(out, Segment{ID: s.ID, Text: text})
	}
	return out, nil
}

// Reconcile returns the translated text for every requested segment, in
// request order. Results are matched by identifier; results without
// identifiers are matched by position. Any mismatch is an *AlignmentError.
func Reconcile(requested, results []Segment) ([]string, error) {
	if len(requested) != len(results) {
		return nil, &AlignmentError{Want: len(requested), Got: len(results)}
	}

	texts := make([]string, len(requested))
	if !hasIDs(results) {
		for i, r := range results {
			texts[i] = r.Text
		}
		return texts, nil
	}

	byID := make(map[string]string, len(results))
	for _, r := range results {
		byID[r.ID] = r.Text
	}
	for i, s := range requested {
		text, ok := byID[s.ID]
		if !ok {
			return nil, &AlignmentError{Want: len(requested), Got: len(results), Missing: s.ID}
		}
		texts[i] = text
	}
	return texts, nil
}

func hasIDs(segments []Segment) bool {
	for _, s := range segments {
		if s.ID != "" {
			return true
		}
	}
	return false
}
