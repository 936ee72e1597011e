package bind_group_provider

// BufferWrite is one queued upload: Data lands in the buffer that Provider holds for Binding,
// starting Offset bytes in.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
