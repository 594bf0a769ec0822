package wasmbin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func header() []byte {
	return append(append([]byte{}, Magic...), version...)
}

func TestDecodeModule(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []*Section
	}{
		{
			name:     "empty",
			input:    header(),
			expected: nil,
		},
		{
			name: "custom sections anywhere",
			input: append(header(),
				SectionIDCustom, 0x03, 0x01, 'a', 0x00,
				SectionIDMemory, 0x03, 0x01, 0x00, 0x01,
				SectionIDCustom, 0x02, 0x01, 'b',
				SectionIDDataCount, 0x01, 0x00,
				SectionIDCode, 0x01, 0x00,
			),
			expected: []*Section{
				{ID: SectionIDCustom, Payload: []byte{0x01, 'a', 0x00}},
				{ID: SectionIDMemory, Payload: []byte{0x01, 0x00, 0x01}},
				{ID: SectionIDCustom, Payload: []byte{0x01, 'b'}},
				{ID: SectionIDDataCount, Payload: []byte{0x00}},
				{ID: SectionIDCode, Payload: []byte{0x00}},
			},
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			m, err := DecodeModule(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, m.Sections)
			require.Equal(t, tc.input, m.Encode())
		})
	}
}

func TestDecodeModule_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		expectedErr string
	}{
		{
			name:        "wrong magic",
			input:       []byte("wasm\x01\x00\x00\x00"),
			expectedErr: "invalid magic number",
		},
		{
			name:        "wrong version",
			input:       []byte("\x00asm\x02\x00\x00\x00"),
			expectedErr: "invalid version header",
		},
		{
			name:        "unknown section",
			input:       append(header(), 0x0e, 0x00),
			expectedErr: "invalid byte: invalid section id: 0xe",
		},
		{
			name:        "duplicate section",
			input:       append(header(), SectionIDStart, 0x01, 0x00, SectionIDStart, 0x01, 0x00),
			expectedErr: "section start is duplicated or out of order",
		},
		{
			name:        "out of order",
			input:       append(header(), SectionIDCode, 0x01, 0x00, SectionIDDataCount, 0x01, 0x00),
			expectedErr: "section data_count is duplicated or out of order",
		},
		{
			name:        "truncated payload",
			input:       append(header(), SectionIDType, 0x05, 0x00),
			expectedErr: "section type: size 5 exceeds the 1 bytes remaining",
		},
		{
			name:        "custom section without name",
			input:       append(header(), SectionIDCustom, 0x00),
			expectedErr: "failed to read custom section name size: EOF",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeModule(tc.input)
			require.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestModule_SetSection(t *testing.T) {
	m := &Module{Sections: []*Section{
		{ID: SectionIDType, Payload: []byte{0x00}},
		{ID: SectionIDCode, Payload: []byte{0x00}},
		{ID: SectionIDCustom, Payload: []byte{0x04, 'n', 'a', 'm', 'e'}},
	}}

	m.SetSection(SectionIDDataCount, []byte{0x02})
	m.SetSection(SectionIDData, []byte{0x00})
	m.SetSection(SectionIDType, []byte{0x01})

	var ids []SectionID
	for _, s := range m.Sections {
		ids = append(ids, s.ID)
	}
	require.Equal(t, []SectionID{SectionIDType, SectionIDDataCount, SectionIDCode, SectionIDCustom, SectionIDData}, ids)
	require.Equal(t, []byte{0x01}, m.Section(SectionIDType))

	// The encoding must still be a valid module.
	_, err := DecodeModule(m.Encode())
	require.NoError(t, err)

	m.RemoveSection(SectionIDDataCount)
	require.False(t, m.HasSection(SectionIDDataCount))
	require.Nil(t, m.Section(SectionIDDataCount))
}

func TestModule_Clone(t *testing.T) {
	m := &Module{Sections: []*Section{{ID: SectionIDStart, Payload: []byte{0x00}}}}
	c := m.Clone()
	c.SetSection(SectionIDStart, []byte{0x01})
	c.RemoveSection(SectionIDStart)

	require.Equal(t, []byte{0x00}, m.Section(SectionIDStart))
	require.False(t, c.HasSection(SectionIDStart))
}
