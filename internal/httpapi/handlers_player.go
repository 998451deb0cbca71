package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/model"
)

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.Version})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"players": s.Pipeline.Snapshots()})
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Pipeline.NowPlaying())
}

func (s *Server) handlePlayerUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var event model.PlayerEvent
	if err := decodeJSON(r, &event); err != nil {
		writeSuccessMessage(w, false, "malformed event body: "+err.Error())
		return
	}

	if err := s.Pipeline.PushEvent(r.Context(), id, event); err != nil {
		writeSuccessMessage(w, false, "Failed to process event or processor disabled")
		return
	}
	writeSuccessMessage(w, true, "event applied")
}

// wireCommand is the {command, args?} body shape from spec.md §6.
type wireCommand struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

func decodeCommand(r *http.Request) (model.Command, error) {
	var wire wireCommand
	if err := decodeJSON(r, &wire); err != nil {
		return model.Command{}, acerr.Wrap(acerr.InvalidArgument, "httpapi.decode_command", err)
	}

	switch model.CommandKind(wire.Command) {
	case model.CmdPlay:
		return model.Command{Kind: model.CmdPlay}, nil
	case model.CmdPause:
		return model.Command{Kind: model.CmdPause}, nil
	case model.CmdStop:
		return model.Command{Kind: model.CmdStop}, nil
	case model.CmdNext:
		return model.Command{Kind: model.CmdNext}, nil
	case model.CmdPrevious:
		return model.Command{Kind: model.CmdPrevious}, nil
	case model.CmdSeekTo:
		var args struct {
			Seconds float64 `json:"seconds"`
		}
		_ = json.Unmarshal(wire.Args, &args)
		return model.Command{Kind: model.CmdSeekTo, SeekSeconds: args.Seconds}, nil
	case model.CmdSetShuffle:
		var args struct {
			Shuffle bool `json:"shuffle"`
		}
		_ = json.Unmarshal(wire.Args, &args)
		return model.Command{Kind: model.CmdSetShuffle, ShuffleValue: args.Shuffle}, nil
	case model.CmdSetLoop:
		var args struct {
			Loop model.LoopMode `json:"loop"`
		}
		_ = json.Unmarshal(wire.Args, &args)
		return model.Command{Kind: model.CmdSetLoop, LoopValue: args.Loop}, nil
	default:
		return model.Command{}, acerr.New(acerr.InvalidArgument, "httpapi.decode_command", "unrecognized command: "+wire.Command)
	}
}

func (s *Server) handlePlayerCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cmd, err := decodeCommand(r)
	if err != nil {
		writeSuccessMessage(w, false, err.Error())
		return
	}

	if err := s.Pipeline.Command(r.Context(), id, cmd); err != nil {
		writeSuccessMessage(w, false, err.Error())
		return
	}
	writeSuccessMessage(w, true, "command accepted")
}
