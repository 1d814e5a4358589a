package dedupe

// Option configures a Deduper.
type Option func(*fifo)

// WithMaxSize sets how many ids are remembered. Values <= 0 keep every id.
func WithMaxSize(n int) Option {
	return func(d *fifo) {
		d.maxSize = n
	}
}
