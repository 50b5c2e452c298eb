package session

// fingerprintJS is the fixed patch battery installed on every new document,
// on top of the go-rod/stealth bundle. It masks the automation flag, fakes
// a plausible plugin and language list, spoofs the WebGL vendor strings and
// adds per-read noise to 2D canvas pixel data so canvas hashes never repeat.
const fingerprintJS = `
// Overwrite the 'webdriver' property.
Object.defineProperty(navigator, 'webdriver', {
    get: () => undefined
});

// Plausible plugin list.
Object.defineProperty(navigator, 'plugins', {
    get: () => [
        {
            0: {type: "application/x-google-chrome-pdf"},
            description: "Portable Document Format",
            filename: "internal-pdf-viewer",
            length: 1,
            name: "Chrome PDF Plugin"
        },
        {
            0: {type: "application/pdf"},
            description: "Portable Document Format",
            filename: "mhjfbmdgcfjbbpaeojofohoefgiehjai",
            length: 1,
            name: "Chrome PDF Viewer"
        },
        {
            0: {type: "application/x-nacl"},
            description: "Native Client Executable",
            filename: "internal-nacl-plugin",
            length: 1,
            name: "Native Client"
        }
    ]
});

// Language list matching the Accept-Language header.
Object.defineProperty(navigator, 'languages', {
    get: () => ['en-US', 'en']
});

// Permissions API: notifications query must not throw for a "real" browser.
const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
    parameters.name === 'notifications' ?
        Promise.resolve({state: Notification.permission}) :
        originalQuery(parameters)
);

// WebGL vendor strings (UNMASKED_VENDOR_WEBGL / UNMASKED_RENDERER_WEBGL).
const getParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function(parameter) {
    if (parameter === 37445) {
        return 'Intel Inc.';
    }
    if (parameter === 37446) {
        return 'Intel Iris OpenGL Engine';
    }
    return getParameter.apply(this, [parameter]);
};

// Canvas noise: perturb pixel reads so canvas fingerprints never repeat.
const originalGetContext = HTMLCanvasElement.prototype.getContext;
HTMLCanvasElement.prototype.getContext = function(type) {
    const context = originalGetContext.apply(this, arguments);
    if (type === '2d' && context) {
        const originalGetImageData = context.getImageData;
        context.getImageData = function() {
            const imageData = originalGetImageData.apply(this, arguments);
            for (let i = 0; i < imageData.data.length; i += 4) {
                imageData.data[i] = imageData.data[i] + Math.random() * 2 - 1;
            }
            return imageData;
        };
    }
    return context;
};
`
