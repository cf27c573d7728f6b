// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// PrettyConsoleEncoder is a custom encoder that produces human-readable logs
// in a format like:
// [2006-01-02 15:04:05] [INFO] [ComponentName] Message here
type PrettyConsoleEncoder struct {
	zapcore.Encoder
	cfg  zapcore.EncoderConfig
	pool buffer.Pool
}

// NewPrettyConsoleEncoder creates a new PrettyConsoleEncoder instance.
func NewPrettyConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &PrettyConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		cfg:     cfg,
		pool:    buffer.NewPool(),
	}
}

// Clone implements zapcore.Encoder interface
func (e *PrettyConsoleEncoder) Clone() zapcore.Encoder {
	return &PrettyConsoleEncoder{
		Encoder: e.Encoder.Clone(),
		cfg:     e.cfg,
		pool:    e.pool,
	}
}

// EncodeEntry formats a log entry in a human-readable format.
func (e *PrettyConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := e.pool.Get()

	line.AppendByte('[')
	if entry.Time.IsZero() {
		line.AppendString("no timestamp")
	} else {
		line.AppendString(entry.Time.Format("2006-01-02 15:04:05 MST"))
	}
	line.AppendByte(']')

	line.AppendString(" [")
	line.AppendString(entry.Level.CapitalString())
	line.AppendByte(']')
	line.AppendByte('\t')

	if entry.Caller.Defined {
		line.AppendByte('[')
		line.AppendString(entry.Caller.TrimmedPath())
		line.AppendByte(':')
		line.AppendString(fmt.Sprint(entry.Caller.Line))
		line.AppendByte(']')
		line.AppendByte('\t')
	}

	if entry.LoggerName != "" {
		line.AppendByte('[')
		line.AppendString(entry.LoggerName)
		line.AppendByte(']')
		line.AppendByte('\t')
	}

	line.AppendString(entry.Message)

	if len(fields) > 0 {
		line.AppendString(" - ")
		addFields(line, fields)
	}

	line.AppendString(e.cfg.LineEnding)

	return line, nil
}

// addFields appends key=value pairs to the log line.
func addFields(line *buffer.Buffer, fields []zapcore.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for i, field := range fields {
		field.AddTo(enc)
		if i > 0 {
			line.AppendString(", ")
		}
		line.AppendString(field.Key)
		line.AppendString("=")
		line.AppendString(fmt.Sprintf("%v", enc.Fields[field.Key]))
	}
}
