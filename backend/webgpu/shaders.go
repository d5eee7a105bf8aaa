// WGSL compute shaders for the device sparse kernels.
// Using string constants instead of embed for simplicity.
package webgpu

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

// bsrmvShader computes y = alpha*A*x + beta*y for a BCSR matrix. One
// thread handles one scalar row: it walks the blocks of its block row and
// accumulates the dot product of its row slice of each block with the
// matching slice of x. params.dir selects row-major (0) or column-major
// (1) scalar layout inside each block; params.base is the index base of
// the row pointer and column arrays.
const bsrmvShader = `
@group(0) @binding(0) var<storage, read> val: array<f32>;
@group(0) @binding(1) var<storage, read> row_offset: array<i32>;
@group(0) @binding(2) var<storage, read> col: array<i32>;
@group(0) @binding(3) var<storage, read> x: array<f32>;
@group(0) @binding(4) var<storage, read_write> y: array<f32>;

struct Params {
    nrowb: u32,
    blockdim: u32,
    dir: u32,
    base: u32,
    alpha: f32,
    beta: f32,
}
@group(0) @binding(5) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let r = global_id.x;
    let bd = params.blockdim;
    if (r >= params.nrowb * bd) {
        return;
    }

    let rowb = r / bd;
    let bi = r % bd;

    var sum: f32 = 0.0;
    let begin = u32(row_offset[rowb]) - params.base;
    let end = u32(row_offset[rowb + 1u]) - params.base;

    for (var ptr = begin; ptr < end; ptr = ptr + 1u) {
        let colb = u32(col[ptr]) - params.base;
        let base = ptr * bd * bd;

        for (var bj = 0u; bj < bd; bj = bj + 1u) {
            var v: f32;
            if (params.dir == 0u) {
                v = val[base + bi * bd + bj];
            } else {
                v = val[base + bj * bd + bi];
            }
            sum = sum + v * x[colb * bd + bj];
        }
    }

    y[r] = params.alpha * sum + params.beta * y[r];
}
`
