package transport

import "io"

type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipePort) Close() error {
	p.r.Close()
	return p.w.Close()
}

// Pipe returns two connected in-memory ports. Bytes written to one are
// read from the other. The host end is given to the codec under test;
// the module end is driven by a test harness playing the WiFi module.
func Pipe() (host Port, module Port) {
	hr, mw := io.Pipe()
	mr, hw := io.Pipe()
	return &pipePort{r: hr, w: hw}, &pipePort{r: mr, w: mw}
}
