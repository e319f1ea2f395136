package main

import (
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/go-graphite/check-graphite/rawdata"
	util "github.com/go-graphite/check-graphite/util/ctx"
)

func (cfg *listener) renderHandler(wr http.ResponseWriter, req *http.Request) {
	logger := cfg.logger.With(
		zap.String("function", "renderHandler"),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("carbonapi_uuid", req.Header.Get(util.HeaderUUIDAPI)),
	)

	logger.Info("got request")
	if cfg.Code != http.StatusOK {
		wr.WriteHeader(cfg.Code)
		_, _ = wr.Write([]byte(http.StatusText(cfg.Code)))
		return
	}

	if err := req.ParseForm(); err != nil {
		http.Error(wr, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !isRawRequest(req) {
		logger.Error("bad request, only raw data is served")
		http.Error(wr, "only rawData=true is supported", http.StatusBadRequest)
		return
	}

	targets := req.Form["target"]
	logger.Info("request details",
		zap.Strings("target", targets),
		zap.String("from", req.Form.Get("from")),
		zap.String("until", req.Form.Get("until")),
	)

	metrics := make([]rawdata.Metric, 0)
	httpCode := http.StatusOK
	for _, target := range targets {
		response, ok := cfg.Expressions[target]
		if !ok {
			continue
		}
		if response.ReplyDelayMS > 0 {
			delay := time.Duration(response.ReplyDelayMS) * time.Millisecond
			logger.Info("will add extra delay",
				zap.Duration("delay", delay),
			)
			select {
			case <-req.Context().Done():
				return
			case <-time.After(delay):
			}
		}
		if response.Code > 0 && response.Code != http.StatusOK {
			httpCode = response.Code
		}
		for _, m := range response.Data {
			metrics = append(metrics, m.toRaw())
		}
	}

	if httpCode != http.StatusOK {
		wr.WriteHeader(httpCode)
		_, _ = wr.Write([]byte(http.StatusText(httpCode)))
		return
	}

	if cfg.Listener.ShuffleResults {
		rand.Shuffle(len(metrics), func(i, j int) {
			metrics[i], metrics[j] = metrics[j], metrics[i]
		})
	}

	wr.Header().Set("Content-Type", contentTypeRaw)
	if cfg.EmptyBody {
		return
	}

	d := rawdata.Marshal(metrics)
	logger.Info("request will be served",
		zap.String("format", "raw"),
		zap.Int("series", len(metrics)),
	)
	_, _ = wr.Write(d)
}
