package guest

// StagedInput is what initialize hands to main through the snapshot.
type StagedInput struct {
	Script string
	// PreloadPath is the guest path preload files were read from, or empty.
	PreloadPath string
}

// stagedSlot holds a StagedInput that is written at most once.
type stagedSlot struct {
	input *StagedInput
}

func (s *stagedSlot) stage(in StagedInput) error {
	if s.input != nil {
		return ErrAlreadyStaged
	}
	s.input = &in
	return nil
}

func (s *stagedSlot) load() (StagedInput, error) {
	if s.input == nil {
		return StagedInput{}, ErrNoScript
	}
	return *s.input, nil
}
