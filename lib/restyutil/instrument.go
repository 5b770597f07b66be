package restyutil

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// DumpExchanges writes every request that gets a response, together with
// that response, to output. Values are passed through mask before they are
// written, a nil mask writes them as they are.
func DumpExchanges(client *resty.Client, output Output, mask Masker) {
	if output == nil {
		return
	}
	if mask == nil {
		mask = func(v url.Values) url.Values { return v }
	}

	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		if res.Request.RawRequest == nil {
			return nil
		}
		id := atomic.AddUint64(&idcounter, 1)
		name := fmt.Sprintf("%04d-%s.txt", id, lastSegment(res.Request.URL))
		output.Write(name, formatHttpMessage(res, mask))
		return nil
	})
}

func lastSegment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "request"
	}
	path := strings.TrimSuffix(parsed.Path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return "request"
	}
	return path
}
