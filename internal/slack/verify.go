// Package slack bridges Slack app mentions and the /shipsense slash command
// to the assistant's chat pipeline.
package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
	headerRetryNum  = "X-Slack-Retry-Num"

	signatureVersion = "v0"
	maxClockSkew     = 5 * time.Minute
)

// ErrInvalidSignature is returned for unsigned, stale or forged requests.
var ErrInvalidSignature = errors.New("slack: invalid request signature")

// Verify checks a request against Slack's v0 signing scheme: an HMAC-SHA256
// of "v0:<timestamp>:<body>" keyed with the signing secret. Timestamps more
// than five minutes from now are rejected to stop replays.
func Verify(secret, timestamp, signature string, body []byte, now time.Time) error {
	if secret == "" || timestamp == "" || signature == "" {
		return ErrInvalidSignature
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if skew := now.Sub(time.Unix(ts, 0)); skew > maxClockSkew || skew < -maxClockSkew {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(sign(secret, timestamp, body)), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}
