package notify

import (
	"context"
	"sync"
)

const (
	DecisionConfirm = "confirm"
	DecisionCancel  = "cancel"
)

// FormAsker answers from the button the operator pressed on a confirmation
// page. Anything but the confirm button counts as no.
type FormAsker struct {
	Decision string
}

func (a FormAsker) Ask(ctx context.Context, d Dialog) (Result, error) {
	switch a.Decision {
	case DecisionConfirm:
		return Confirmed, nil
	case DecisionCancel:
		return Cancelled, nil
	default:
		return Dismissed, nil
	}
}

// Recorder is a headless Presenter and Asker. Answers are handed out in order;
// once they run out every question is dismissed.
type Recorder struct {
	mu      sync.Mutex
	Dialogs []Dialog
	Asked   []Dialog
	Answers []Result
	Err     error
}

func (r *Recorder) Present(d Dialog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Dialogs = append(r.Dialogs, d)
}

func (r *Recorder) Ask(ctx context.Context, d Dialog) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Asked = append(r.Asked, d)
	if r.Err != nil {
		return Dismissed, r.Err
	}
	if len(r.Answers) == 0 {
		return Dismissed, nil
	}
	res := r.Answers[0]
	r.Answers = r.Answers[1:]
	return res, nil
}

func (r *Recorder) Last() (Dialog, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Dialogs) == 0 {
		return Dialog{}, false
	}
	return r.Dialogs[len(r.Dialogs)-1], true
}
