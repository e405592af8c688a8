// SPDX-License-Identifier: MIT

package dataset

// Options configures CSV reading.
type Options struct {
	Header  bool
	Comma   rune
	Comment rune
}

// Option mutates Options.
type Option func(*Options)

// WithHeader treats the first record as column names.
func WithHeader() Option { return func(o *Options) { o.Header = true } }

// WithComma sets the field delimiter (default ',').
func WithComma(r rune) Option { return func(o *Options) { o.Comma = r } }

// WithComment skips lines beginning with r.
func WithComment(r rune) Option { return func(o *Options) { o.Comment = r } }

func gatherOptions(user ...Option) Options {
	o := Options{Comma: ','}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
