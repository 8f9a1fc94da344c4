package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownKey indica chave fora do conjunto suportado.
	ErrUnknownKey = errors.New("settings: chave desconhecida")
	// ErrInvalidValue indica valor incompatível com o tipo da chave.
	ErrInvalidValue = errors.New("settings: valor inválido")
)

// Key identifica uma preferência persistida.
type Key string

const (
	CapturePath          Key = "capturePath"
	CaptureFileName      Key = "captureFileName"
	CaptureFileType      Key = "captureFileType"
	ImgurClientID        Key = "imgurClientId"
	ToastTimeout         Key = "toastTimeout"
	SaveToDisk           Key = "saveToDisk"
	RecordingPath        Key = "recordingPath"
	RecordAudio          Key = "recordAudio"
	ShowRecordingPreview Key = "showRecordingPreview"
	CaptureBinary        Key = "captureBinary"
	RecordingFileName    Key = "recordingFileName"
	RecordingFileType    Key = "recordingFileType"
	MenuBarAppIcon       Key = "menuBarAppIcon"
	UploadType           Key = "uploadType"
)

// Kind descreve o tipo de valor aceito por uma chave.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindEnum:
		return "enum"
	default:
		return "string"
	}
}

// Definition documenta default e restrições de uma chave. Max limita
// chaves KindInt; zero deixa sem teto.
type Definition struct {
	Key     Key
	Kind    Kind
	Default string
	Options []string
	Max     int
}

// maxToastSeconds mantém o timeout do toast bem dentro de time.Duration.
const maxToastSeconds = 24 * 60 * 60

const (
	UploadImgur = "imgur"
	UploadS3    = "s3"
	UploadNone  = "none"
)

var definitions = []Definition{
	{Key: CapturePath, Kind: KindString, Default: "~/Pictures/"},
	{Key: CaptureFileName, Kind: KindString, Default: "ishare"},
	{Key: CaptureFileType, Kind: KindEnum, Default: "png", Options: []string{"png", "jpg", "heic", "tiff", "gif", "pdf", "bmp"}},
	{Key: ImgurClientID, Kind: KindString, Default: "867afe9433c0a53"},
	{Key: ToastTimeout, Kind: KindInt, Default: "2", Max: maxToastSeconds},
	{Key: SaveToDisk, Kind: KindBool, Default: "true"},
	{Key: RecordingPath, Kind: KindString, Default: "~/Movies/"},
	{Key: RecordAudio, Kind: KindBool, Default: "true"},
	{Key: ShowRecordingPreview, Kind: KindBool, Default: "true"},
	{Key: CaptureBinary, Kind: KindString, Default: "/usr/sbin/screencapture"},
	{Key: RecordingFileName, Kind: KindString, Default: "ishare"},
	{Key: RecordingFileType, Kind: KindEnum, Default: "mov", Options: []string{"mov", "mp4"}},
	{Key: MenuBarAppIcon, Kind: KindBool, Default: "true"},
	{Key: UploadType, Kind: KindEnum, Default: UploadImgur, Options: []string{UploadImgur, UploadS3, UploadNone}},
}

var definitionIndex = func() map[Key]Definition {
	idx := make(map[Key]Definition, len(definitions))
	for _, def := range definitions {
		idx[def.Key] = def
	}
	return idx
}()

// Keys devolve todas as chaves suportadas na ordem de declaração.
func Keys() []Key {
	keys := make([]Key, 0, len(definitions))
	for _, def := range definitions {
		keys = append(keys, def.Key)
	}
	return keys
}

// Lookup devolve a definição da chave.
func Lookup(key Key) (Definition, error) {
	def, ok := definitionIndex[key]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return def, nil
}

// ParseKey aceita o nome da chave sem diferenciar maiúsculas.
func ParseKey(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)
	for _, def := range definitions {
		if strings.EqualFold(string(def.Key), raw) {
			return def.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, raw)
}

// Default devolve o valor documentado para a chave.
func Default(key Key) (string, error) {
	def, err := Lookup(key)
	if err != nil {
		return "", err
	}
	return def.Default, nil
}

// Normalize valida o valor e devolve sua forma canônica.
func (d Definition) Normalize(value string) (string, error) {
	switch d.Kind {
	case KindBool:
		b, err := parseBool(value)
		if err != nil {
			return "", fmt.Errorf("%w: %s espera bool", ErrInvalidValue, d.Key)
		}
		return strconv.FormatBool(b), nil
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return "", fmt.Errorf("%w: %s espera inteiro >= 0", ErrInvalidValue, d.Key)
		}
		if d.Max > 0 && n > d.Max {
			return "", fmt.Errorf("%w: %s aceita no máximo %d", ErrInvalidValue, d.Key, d.Max)
		}
		return strconv.Itoa(n), nil
	case KindEnum:
		v := strings.ToLower(strings.TrimSpace(value))
		for _, opt := range d.Options {
			if v == opt {
				return v, nil
			}
		}
		return "", fmt.Errorf("%w: %s aceita %s", ErrInvalidValue, d.Key, strings.Join(d.Options, ", "))
	default:
		return value, nil
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on", "sim":
		return true, nil
	case "0", "false", "no", "off", "nao", "não":
		return false, nil
	}
	return false, ErrInvalidValue
}
