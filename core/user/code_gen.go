package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	codeDigits = 6
	codeStep   = time.Minute
)

var (
	salt    = []byte("hrmobile.core.user.code_gen")
	NowFunc = time.Now // mockable

	// errors
	errInvalidCode = errors.New("invalid confirmation code")
)

// codeGenerator makes short numeric confirmation codes for password changes.
// Codes are derived from the user's current password hash, so they need no storage
// and stop working as soon as the password changes.
type codeGenerator struct {
	secret  []byte
	timeout time.Duration
}

func newCodeGenerator(secretKey string, timeout time.Duration) codeGenerator {
	key := sha256.Sum256(append(append([]byte{}, salt...), secretKey...))
	if timeout < codeStep {
		timeout = codeStep
	}
	return codeGenerator{secret: key[:], timeout: timeout}
}

// makeCode returns the 6 digit code of usr for the current time step.
func (g codeGenerator) makeCode(usr User) string {
	return g.codeAt(usr, g.step(NowFunc()))
}

// verifyCode checks code against every time step within the timeout.
func (g codeGenerator) verifyCode(usr User, code string) error {
	if len(code) != codeDigits {
		return errInvalidCode
	}
	if _, err := strconv.Atoi(code); err != nil {
		return errInvalidCode
	}

	now := g.step(NowFunc())
	steps := int64(g.timeout / codeStep)
	for s := now; s > now-steps; s-- {
		if subtle.ConstantTimeCompare([]byte(g.codeAt(usr, s)), []byte(code)) == 1 {
			return nil
		}
	}
	return errInvalidCode
}

func (g codeGenerator) step(t time.Time) int64 {
	return t.Unix() / int64(codeStep/time.Second)
}

// codeAt truncates the HMAC of the user state at step s (RFC 4226 dynamic truncation).
func (g codeGenerator) codeAt(usr User, s int64) string {
	h := hmac.New(sha256.New, g.secret)
	_, _ = h.Write(g.hashValue(usr, s))
	sum := h.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%0*d", codeDigits, bin%1000000)
}

func (g codeGenerator) hashValue(usr User, s int64) []byte {
	var val bytes.Buffer
	val.WriteString(strconv.Itoa(usr.ID))
	val.WriteByte(':')
	val.Write(usr.PasswordHash)
	val.WriteByte(':')
	val.WriteString(usr.Email)
	val.WriteByte(':')
	val.WriteString(strconv.FormatInt(s, 10))
	return val.Bytes()
}
