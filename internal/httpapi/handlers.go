package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/power"
)

// Counter reports how many clients are connected. hub.Hub implements it.
type Counter interface {
	ConnectedCount() int
}

// QueueStats is the read side of the lobby message queue.
type QueueStats interface {
	Len() int
	Cap() int
	Dropped() uint64
}

// PowerSetter overrides the simulated battery sense. hal.SimSense implements it.
type PowerSetter interface {
	Set(raw uint16, charging bool)
}

type batteryStatus struct {
	Percent    uint8  `json:"percent"`
	Charging   bool   `json:"charging"`
	MilliVolts uint16 `json:"millivolts"`
}

type queueStatus struct {
	Len     int    `json:"len"`
	Cap     int    `json:"cap"`
	Dropped uint64 `json:"dropped"`
}

type statusResponse struct {
	Battery batteryStatus `json:"battery"`
	Phase   string        `json:"phase"`
	Clients int           `json:"clients"`
	Queue   queueStatus   `json:"queue"`
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Status(ps *power.State, clients Counter, q QueueStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rd := ps.Load()
		resp := statusResponse{
			Battery: batteryStatus{Percent: rd.Percent, Charging: rd.Charging, MilliVolts: rd.MilliVolts},
			Phase:   ps.Phase().String(),
			Clients: clients.ConnectedCount(),
			Queue:   queueStatus{Len: q.Len(), Cap: q.Cap(), Dropped: q.Dropped()},
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type debugPowerRequest struct {
	Raw      *uint16 `json:"raw"`
	Charging bool    `json:"charging"`
}

// DebugPower sets the simulated sense inputs. The sampler picks them up on
// its next tick.
func DebugPower(sense PowerSetter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req debugPowerRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil || req.Raw == nil {
			http.Error(w, "expected {\"raw\":N,\"charging\":b}", http.StatusBadRequest)
			return
		}
		sense.Set(*req.Raw, req.Charging)
		log.Info("simulated battery set", zap.Uint16("raw", *req.Raw), zap.Bool("charging", req.Charging))
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
