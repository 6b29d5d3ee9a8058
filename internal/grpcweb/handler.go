// Package grpcweb lets browsers call the record service over HTTP/1.1. Frames
// are unwrapped and the JSON payload is forwarded to the gRPC server as is.
package grpcweb

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"health-records-api/internal/middleware"
	"health-records-api/internal/rpc"
)

const (
	ContentType = "application/grpc-web+json"

	frameData    byte = 0x00
	frameTrailer byte = 0x80
	maxBody           = 4 << 20
)

// Bridge translates gRPC-Web (browser HTTP/1.1) → native gRPC via TCP.
type Bridge struct {
	conn *grpc.ClientConn
	log  zerolog.Logger
}

// New dials the gRPC server at addr (e.g. "localhost:50051").
func New(addr string, logger zerolog.Logger) (*Bridge, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	return &Bridge{conn: conn, log: logger}, nil
}

func (b *Bridge) Close() { b.conn.Close() }

// Handler returns an http.Handler that translates gRPC-Web → gRPC.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ct := r.Header.Get("Content-Type")
		if ct != "application/grpc-web" && !strings.HasPrefix(ct, ContentType) {
			http.Error(w, "expected "+ContentType, http.StatusUnsupportedMediaType)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/"+rpc.ServiceName+"/") {
			http.NotFound(w, r)
			return
		}
		b.forward(w, r)
	})
}

func (b *Bridge) forward(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		writeError(w, codes.Internal, "read body failed")
		return
	}
	if len(body) > maxBody {
		writeError(w, codes.ResourceExhausted, "request too large")
		return
	}
	if len(body) < 5 {
		writeError(w, codes.InvalidArgument, "body too short")
		return
	}

	// grpc-web frame: 1-byte flag + 4-byte big-endian length + message
	msgLen := binary.BigEndian.Uint32(body[1:5])
	if int(msgLen)+5 > len(body) {
		writeError(w, codes.InvalidArgument, "incomplete frame")
		return
	}
	payload := body[5 : 5+msgLen]

	// forward metadata
	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		md.Set("x-request-id", id)
	}
	md.Set(middleware.ForwardedForKey, clientIP(r))
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	// invoke gRPC method using raw codec (pass-through bytes)
	resp := &rawMsg{}
	err = b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		st, _ := status.FromError(err)
		b.log.Debug().Str("method", r.URL.Path).Str("code", st.Code().String()).Msg("grpc-web call failed")
		writeError(w, st.Code(), st.Message())
		return
	}

	writeSuccess(w, resp.data)
}

// rawMsg wraps an already encoded JSON message.
type rawMsg struct{ data []byte }

// rawCodec passes bytes through without marshal/unmarshal. It reports the
// JSON codec's name so the content-subtype matches what the server decodes.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	return v.(*rawMsg).data, nil
}
func (rawCodec) Unmarshal(data []byte, v any) error {
	m := v.(*rawMsg)
	m.data = append([]byte(nil), data...)
	return nil
}
func (rawCodec) Name() string { return rpc.CodecName }

// clientIP picks the caller's address the way echo's RealIP does.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func trailer(code codes.Code, msg string) []byte {
	t := fmt.Sprintf("grpc-status:%d\r\n", code)
	if msg != "" {
		msg = strings.NewReplacer("\r", " ", "\n", " ").Replace(msg)
		t += "grpc-message:" + msg + "\r\n"
	}
	return frame(frameTrailer, []byte(t))
}

func writeError(w http.ResponseWriter, code codes.Code, msg string) {
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Grpc-Status", fmt.Sprint(int(code)))
	w.Header().Set("Grpc-Message", msg)
	w.WriteHeader(http.StatusOK)
	w.Write(trailer(code, msg))
}

func writeSuccess(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(frame(frameData, data))
	w.Write(trailer(codes.OK, ""))
}

// ParseResponse splits a grpc-web response body into its message and status.
func ParseResponse(body []byte) (msg []byte, st *status.Status, err error) {
	st = status.New(codes.Unknown, "missing trailer")
	for len(body) >= 5 {
		n := int(binary.BigEndian.Uint32(body[1:5]))
		if 5+n > len(body) {
			return nil, nil, fmt.Errorf("grpcweb: truncated frame")
		}
		data := body[5 : 5+n]
		if body[0]&frameTrailer == 0 {
			msg = data
		} else {
			st = parseTrailer(string(data))
		}
		body = body[5+n:]
	}
	return msg, st, nil
}

func parseTrailer(s string) *status.Status {
	code, msg := codes.Unknown, ""
	for _, line := range strings.Split(s, "\r\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "grpc-status":
			var c uint32
			if _, err := fmt.Sscan(v, &c); err == nil {
				code = codes.Code(c)
			}
		case "grpc-message":
			msg = v
		}
	}
	return status.New(code, msg)
}

// Frame wraps a request message in a grpc-web data frame.
func Frame(msg []byte) []byte { return frame(frameData, msg) }
