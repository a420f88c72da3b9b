package strategy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile over the built-in defaults.
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&p); err != nil {
		// 빈 파일은 기본값 그대로
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Hash generates SHA256 hash from a profile (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(p *Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
