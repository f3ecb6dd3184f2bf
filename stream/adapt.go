package stream

import (
	"iter"
	"sync"
)

// ErrorPrefix starts the message of every Error envelope built by Adapt.
const ErrorPrefix = "Error in streaming response: "

// ErrorFrom wraps err in an Error envelope.
func ErrorFrom(err error) Error {
	return Error{Message: ErrorPrefix + err.Error()}
}

// Adapt converts a provider fragment sequence into envelopes.
//
// Every fragment becomes a Chunk. The first error, either setupErr or one
// yielded by fragments, becomes a single Error and no more fragments are
// pulled. An End follows unless the consumer stopped early. release runs
// exactly once, after the End or when the consumer stops.
func Adapt(fragments iter.Seq2[string, error], setupErr error, release func()) iter.Seq[Envelope] {
	var once sync.Once
	done := func() {
		if release != nil {
			once.Do(release)
		}
	}

	return func(yield func(Envelope) bool) {
		defer done()

		switch {
		case setupErr != nil:
			if !yield(ErrorFrom(setupErr)) {
				return
			}
		case fragments != nil:
			for text, err := range fragments {
				if err != nil {
					if !yield(ErrorFrom(err)) {
						return
					}
					break
				}
				if text == "" {
					continue
				}
				if !yield(Chunk{Text: text}) {
					return
				}
			}
		}

		yield(End{})
	}
}

// Collect drains envelopes and returns the concatenated text and the first
// error message, if any.
func Collect(envelopes iter.Seq[Envelope]) (text string, errMsg string) {
	var buf []byte
	for env := range envelopes {
		switch e := env.(type) {
		case Chunk:
			buf = append(buf, e.Text...)
		case Error:
			if errMsg == "" {
				errMsg = e.Message
			}
		}
	}
	return string(buf), errMsg
}
